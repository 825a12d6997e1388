package services

import (
	"time"

	"github.com/parentplanner/server/models"
	"github.com/parentplanner/server/store"
)

// Records may be partially written by older clients, so decoding never fails:
// missing or mistyped fields fall back to empty values.

func docString(doc store.Document, field string) string {
	s, _ := doc[field].(string)
	return s
}

func docStrings(doc store.Document, field string) []string {
	out := []string{}
	switch v := doc[field].(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func docTime(doc store.Document, field string) *time.Time {
	switch v := doc[field].(type) {
	case time.Time:
		return &v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &t
		}
	}
	return nil
}

func userFromDoc(id string, doc store.Document) models.User {
	return models.User{
		ID:            id,
		Email:         docString(doc, "email"),
		ChildNickname: docString(doc, "childNickname"),
		Friends:       docStrings(doc, "friends"),
		CreatedAt:     docTime(doc, store.FieldCreatedAt),
		UpdatedAt:     docTime(doc, store.FieldUpdatedAt),
	}
}

func activityFromDoc(doc store.Document) models.Activity {
	return models.Activity{
		ID:              doc.ID(),
		CreatedBy:       docString(doc, "createdBy"),
		Name:            docString(doc, "name"),
		Date:            docString(doc, "date"),
		Time:            docString(doc, "time"),
		Location:        docString(doc, "location"),
		Participants:    docStrings(doc, "participants"),
		InterestedUsers: docStrings(doc, "interestedUsers"),
		CreatedAt:       docTime(doc, store.FieldCreatedAt),
		UpdatedAt:       docTime(doc, store.FieldUpdatedAt),
	}
}

func activitiesFromDocs(docs []store.Document) []models.Activity {
	out := make([]models.Activity, 0, len(docs))
	for _, doc := range docs {
		out = append(out, activityFromDoc(doc))
	}
	return out
}

func invitationFromDoc(doc store.Document) models.FriendInvitation {
	return models.FriendInvitation{
		ID:         doc.ID(),
		FromUserID: docString(doc, "fromUserId"),
		Code:       docString(doc, "code"),
		Email:      docString(doc, "email"),
		Status:     models.InvitationStatus(docString(doc, "status")),
		CreatedAt:  docTime(doc, store.FieldCreatedAt),
		UpdatedAt:  docTime(doc, store.FieldUpdatedAt),
	}
}
