package agent

// Role tags a conversation turn as coming from the user or the assistant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in an issue conversation. Turns are immutable once
// appended and history ordering is append-only.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Category classifies what kind of issue the conversation is about.
type Category string

const (
	CategoryBug         Category = "bug"
	CategoryFeature     Category = "feature"
	CategoryImprovement Category = "improvement"
	CategoryQuestion    Category = "question"
)

// Domain tags the backend area an issue affects.
type Domain string

const (
	DomainAuth       Domain = "auth"
	DomainMember     Domain = "member"
	DomainRetrospect Domain = "retrospect"
	DomainAI         Domain = "ai"
	DomainWebhook    Domain = "webhook"
	DomainConfig     Domain = "config"
	DomainOther      Domain = "other"
)

// Severity ranks how badly an issue hurts.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Confidence tiers for the auto-resolve judgment.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// IssueRecord is the sparse, accumulating extraction of issue fields. A zero
// value means "not yet known"; the extractor never sets placeholder values.
// The JSON tags double as the schema the extraction prompt asks the backend
// to produce.
type IssueRecord struct {
	Title       string   `json:"issue_title,omitempty"`
	Description string   `json:"issue_description,omitempty"`
	Category    Category `json:"issue_type,omitempty"`
	Domain      Domain   `json:"affected_domain,omitempty"`
	Severity    Severity `json:"severity,omitempty"`

	// Bug-specific fields
	ReproductionSteps string `json:"steps_to_reproduce,omitempty"`
	ExpectedBehavior  string `json:"expected_behavior,omitempty"`
	ActualBehavior    string `json:"actual_behavior,omitempty"`

	Environment string   `json:"environment_info,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// Merge applies a patch additively: non-empty patch fields overwrite, empty
// ones are no-ops. A field set once is never cleared by a later pass.
func (r *IssueRecord) Merge(patch IssueRecord) {
	if patch.Title != "" {
		r.Title = patch.Title
	}
	if patch.Description != "" {
		r.Description = patch.Description
	}
	if patch.Category != "" {
		r.Category = patch.Category
	}
	if patch.Domain != "" {
		r.Domain = patch.Domain
	}
	if patch.Severity != "" {
		r.Severity = patch.Severity
	}
	if patch.ReproductionSteps != "" {
		r.ReproductionSteps = patch.ReproductionSteps
	}
	if patch.ExpectedBehavior != "" {
		r.ExpectedBehavior = patch.ExpectedBehavior
	}
	if patch.ActualBehavior != "" {
		r.ActualBehavior = patch.ActualBehavior
	}
	if patch.Environment != "" {
		r.Environment = patch.Environment
	}
	if len(patch.Labels) > 0 {
		r.Labels = patch.Labels
	}
}

// IsEmpty reports whether no field has been extracted yet.
func (r IssueRecord) IsEmpty() bool {
	return r.Title == "" && r.Description == "" && r.Category == "" &&
		r.Domain == "" && r.Severity == "" && r.ReproductionSteps == "" &&
		r.ExpectedBehavior == "" && r.ActualBehavior == "" &&
		r.Environment == "" && len(r.Labels) == 0
}

// Phase is the classifier's three-valued assessment of conversation progress.
// It is recomputed from the record and last turn every run, never trusted
// from a previous turn.
type Phase string

const (
	PhaseNeedsInfo Phase = "needs_info"
	PhaseReady     Phase = "ready"
	PhaseConfirmed Phase = "confirmed"
)

// Draft is the polished issue title and body awaiting user confirmation.
type Draft struct {
	Title string `json:"draft_title"`
	Body  string `json:"draft_body"`
}

// Judgment records whether the drafted issue looks automatically resolvable.
type Judgment struct {
	CanAutoResolve bool       `json:"can_auto_resolve"`
	Confidence     Confidence `json:"confidence"`
	Rationale      string     `json:"rationale"`
}

// State is the unit of persistence: everything known about one issue
// conversation. History grows monotonically; the record and draft are only
// ever built up, never partially erased.
type State struct {
	ConversationID string `json:"conversation_id"`
	OriginatorID   string `json:"originator_id"`

	History []Turn      `json:"history"`
	Record  IssueRecord `json:"record"`

	// Phase is persisted for observability; the pipeline recomputes it.
	Phase Phase `json:"phase,omitempty"`

	Draft    *Draft    `json:"draft,omitempty"`
	Judgment *Judgment `json:"judgment,omitempty"`
}

// NewState creates the state for a brand-new conversation.
func NewState(conversationID, originatorID string) *State {
	return &State{
		ConversationID: conversationID,
		OriginatorID:   originatorID,
	}
}

// Append adds a turn to the history.
func (s *State) Append(t Turn) {
	s.History = append(s.History, t)
}

// LastTurn returns the most recent turn, or nil for an empty history.
func (s *State) LastTurn() *Turn {
	if len(s.History) == 0 {
		return nil
	}
	return &s.History[len(s.History)-1]
}
