package audit

import (
	"time"

	"github.com/google/uuid"

	id "resimed/pkg/domain"
)

// Kind names an auditable action.
type Kind string

const (
	KindRecordVerified Kind = "record.verified"
	KindCatalogCopied  Kind = "catalog.copied"
	KindGrantChanged   Kind = "grant.changed"
)

// Event is an append-only audit fact. ScholarID, RecordID and CohortID are
// populated when the action touches those entities.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Kind      Kind              `json:"kind"`
	ActorID   id.UserID         `json:"actor_id"`
	ScholarID id.ScholarID      `json:"scholar_id,omitempty"`
	RecordID  id.RecordID       `json:"record_id,omitempty"`
	CohortID  id.CohortID       `json:"cohort_id,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
