package workshop

import "time"

// Phase is the coarse lifecycle state reported by the external operator.
// This service never writes it.
type Phase string

const (
	PhasePending     Phase = "Pending"
	PhaseCreating    Phase = "Creating"
	PhaseReady       Phase = "Ready"
	PhaseRunning     Phase = "Running"
	PhaseTerminating Phase = "Terminating"
	PhaseFailed      Phase = "Failed"
)

// Defaults applied when a field is missing from the wire document. These
// mirror the operator's own defaulting so a minimal document round-trips
// into a fully populated spec.
const (
	DefaultCPULimit      = "1"
	DefaultMemoryLimit   = "2Gi"
	DefaultCPURequest    = "500m"
	DefaultMemoryRequest = "1Gi"
	DefaultDuration      = "4h"
	DefaultImage         = "rocker/rstudio:latest"
	DefaultStorageSize   = "10Gi"
)

type Resources struct {
	CPU           string `json:"cpu"`
	Memory        string `json:"memory"`
	CPURequest    string `json:"cpuRequest"`
	MemoryRequest string `json:"memoryRequest"`
}

type Storage struct {
	Size         string `json:"size"`
	StorageClass string `json:"storageClass,omitempty"`
}

type Ingress struct {
	Host        string            `json:"host,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// Spec is the user-supplied part of a workshop. Immutable after creation.
type Spec struct {
	Name      string    `json:"name"`
	Duration  string    `json:"duration"`
	Image     string    `json:"image"`
	Resources Resources `json:"resources"`
	Storage   *Storage  `json:"storage,omitempty"`
	Ingress   *Ingress  `json:"ingress,omitempty"`
}

type Condition struct {
	Type               string     `json:"type"`
	Status             string     `json:"status"`
	Reason             string     `json:"reason,omitempty"`
	Message            string     `json:"message,omitempty"`
	LastTransitionTime *time.Time `json:"lastTransitionTime,omitempty"`
}

// Status is owned by the external operator and read-only here. Phase
// defaults to Pending when the resource has no status yet.
type Status struct {
	Phase      Phase       `json:"phase"`
	URL        string      `json:"url,omitempty"`
	CreatedAt  *time.Time  `json:"createdAt,omitempty"`
	ExpiresAt  *time.Time  `json:"expiresAt,omitempty"`
	Conditions []Condition `json:"conditions,omitempty"`
}

// Workshop is the public representation. Name and Namespace together
// identify the resource.
type Workshop struct {
	Name      string     `json:"name"`
	Namespace string     `json:"namespace"`
	Spec      Spec       `json:"spec"`
	Status    Status     `json:"status"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// List is a paginated window over the full result set; Total counts the
// unwindowed items.
type List struct {
	Items []Workshop `json:"items"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Size  int        `json:"size"`
}
