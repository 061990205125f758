package maestro

// Field names used in stage descriptors. They match the state's JSON keys so
// descriptors line up with the wire payload.
const (
	FieldObjective         = "objective"
	FieldTargetAudience    = "target_audience"
	FieldChannels          = "channels"
	FieldBudget            = "budget"
	FieldResearch          = "research_output"
	FieldStrategy          = "strategy_output"
	FieldContentItems      = "content_items"
	FieldPublications      = "publication_results"
	FieldMetrics           = "metrics"
	FieldOptimizationNotes = "optimization_notes"
	FieldStatus            = "orchestration_status"
	FieldErrors            = "errors"
)
