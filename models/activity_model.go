package models

import "time"

type Activity struct {
	ID              string     `json:"id" bson:"_id,omitempty"`
	CreatedBy       string     `json:"createdBy" bson:"createdBy"`
	Name            string     `json:"name" bson:"name"`
	Date            string     `json:"date" bson:"date"`
	Time            string     `json:"time" bson:"time"`
	Location        string     `json:"location" bson:"location"`
	Participants    []string   `json:"participants" bson:"participants"`
	InterestedUsers []string   `json:"interestedUsers" bson:"interestedUsers"`
	CreatedAt       *time.Time `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// ActivityInput is what a user supplies when scheduling an activity.
type ActivityInput struct {
	CreatedBy string `json:"createdBy"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Location  string `json:"location"`
}

func (a *Activity) IsParticipant(userID string) bool {
	return contains(a.Participants, userID)
}

func (a *Activity) IsInterested(userID string) bool {
	return contains(a.InterestedUsers, userID)
}

// Join adds userID to the participants and drops them from the interested
// list. It reports whether anything changed.
func (a *Activity) Join(userID string) bool {
	if a.IsParticipant(userID) {
		return false
	}
	a.Participants = append(a.Participants, userID)
	a.InterestedUsers = remove(a.InterestedUsers, userID)
	return true
}

// Leave removes userID from the participants. The caller must refuse the
// creator before calling it.
func (a *Activity) Leave(userID string) bool {
	if !a.IsParticipant(userID) {
		return false
	}
	a.Participants = remove(a.Participants, userID)
	return true
}

// ExpressInterest records interest unless it is already recorded.
func (a *Activity) ExpressInterest(userID string) bool {
	if a.IsInterested(userID) {
		return false
	}
	a.InterestedUsers = append(a.InterestedUsers, userID)
	return true
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func remove(list []string, id string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
