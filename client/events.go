package client

// ExtractionEvent reports one step of a resolution.
//
// Stage is one of "webpage", "asset", "replay", "refresh", "probe".
// Phase is "start", "success", "partial" or "failure".
type ExtractionEvent struct {
	Stage  string
	Phase  string
	Source string
	Detail string
}

func (c *Client) emitExtractionEvent(stage, phase, source, detail string) {
	if c == nil || c.config.OnExtractionEvent == nil {
		return
	}
	c.config.OnExtractionEvent(ExtractionEvent{
		Stage:  stage,
		Phase:  phase,
		Source: source,
		Detail: detail,
	})
}
