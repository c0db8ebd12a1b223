package lumen

// ValidateTranscript checks a caller-supplied transcript before a run.
// Every tool turn must answer a tool call issued by the assistant turn
// immediately preceding it (consecutive tool turns may answer sibling calls
// from the same assistant turn). Orphaned tool turns and unknown roles are
// contract violations surfaced as *ErrTranscript.
func ValidateTranscript(turns []Turn) error {
	for i, t := range turns {
		switch t.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		case RoleTool:
			if t.ToolCallID == "" {
				return &ErrTranscript{Index: i, Reason: "tool turn missing tool_call_id"}
			}
			if !answersPrecedingAssistant(turns, i) {
				return &ErrTranscript{Index: i, Reason: "tool turn does not answer a preceding assistant tool call"}
			}
		default:
			return &ErrTranscript{Index: i, Reason: "unknown role " + t.Role}
		}
	}
	return nil
}

// answersPrecedingAssistant reports whether the tool turn at position i
// references a call id emitted by the nearest preceding assistant turn,
// skipping over sibling tool turns.
func answersPrecedingAssistant(turns []Turn, i int) bool {
	for j := i - 1; j >= 0; j-- {
		switch turns[j].Role {
		case RoleTool:
			continue
		case RoleAssistant:
			for _, tc := range turns[j].ToolCalls {
				if tc.ID == turns[i].ToolCallID {
					return true
				}
			}
			return false
		default:
			return false
		}
	}
	return false
}

// lastUserText scans the transcript backward for the most recent user turn.
func lastUserText(turns []Turn) (string, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser {
			return turns[i].Content, true
		}
	}
	return "", false
}
