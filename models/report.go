package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Report is a single citizen-submitted observation of a disaster
type Report struct {
	ID          primitive.ObjectID  `json:"_id" bson:"_id"`
	Type        string              `json:"type" bson:"type"`
	Title       string              `json:"title,omitempty" bson:"title,omitempty"`
	Description string              `json:"description" bson:"description"`
	Images      []Image             `json:"image" bson:"image"`
	Location    Location            `json:"location" bson:"location"`
	ReportedBy  primitive.ObjectID  `json:"reportedBy" bson:"reportedBy"`
	Incident    *primitive.ObjectID `json:"incident" bson:"incident"`
	CreatedAt   primitive.DateTime  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   primitive.DateTime  `json:"updatedAt" bson:"updatedAt"`
}

// Image is a stored report attachment
type Image struct {
	URL       string `json:"url" bson:"url"`
	StorageID string `json:"storageId" bson:"storageId"`
}

// ReportSummary identifies an existing report in conflict responses
type ReportSummary struct {
	ID        string             `json:"_id"`
	Title     string             `json:"title"`
	CreatedAt primitive.DateTime `json:"createdAt"`
}

// Summary returns the identifying fields of the report
func (r Report) Summary() ReportSummary {
	return ReportSummary{ID: r.ID.Hex(), Title: r.Title, CreatedAt: r.CreatedAt}
}
