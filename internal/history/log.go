package history

// DefaultLimit is the undo depth used when nothing else is configured.
const DefaultLimit = 50

// Log is an undo stack plus a redo stack. It is a value: every operation returns a
// new Log and never modifies slices shared with an earlier value, so editor
// snapshots can hold one safely. The log does not apply or reverse commands.
type Log struct {
	limit int
	undo  []Command
	redo  []Command
}

// New returns an empty log keeping at most limit undo entries; limit <= 0 is unlimited.
func New(limit int) Log {
	return Log{limit: limit}
}

func (l Log) Limit() int { return l.limit }

// Push appends c, drops the oldest entries beyond the limit, and clears redo.
func (l Log) Push(c Command) Log {
	undo := make([]Command, 0, len(l.undo)+1)
	undo = append(undo, l.undo...)
	undo = append(undo, c)
	if l.limit > 0 && len(undo) > l.limit {
		undo = undo[len(undo)-l.limit:]
	}
	return Log{limit: l.limit, undo: undo}
}

// Undo pops the newest command and moves it onto the redo stack.
func (l Log) Undo() (Command, Log, bool) {
	if len(l.undo) == 0 {
		return Command{}, l, false
	}
	c := l.undo[len(l.undo)-1]
	redo := make([]Command, 0, len(l.redo)+1)
	redo = append(redo, l.redo...)
	redo = append(redo, c)
	return c, Log{limit: l.limit, undo: l.undo[:len(l.undo)-1], redo: redo}, true
}

// Redo pops the newest undone command and moves it back onto the undo stack.
func (l Log) Redo() (Command, Log, bool) {
	if len(l.redo) == 0 {
		return Command{}, l, false
	}
	c := l.redo[len(l.redo)-1]
	undo := make([]Command, 0, len(l.undo)+1)
	undo = append(undo, l.undo...)
	undo = append(undo, c)
	return c, Log{limit: l.limit, undo: undo, redo: l.redo[:len(l.redo)-1]}, true
}

func (l Log) CanUndo() bool { return len(l.undo) > 0 }
func (l Log) CanRedo() bool { return len(l.redo) > 0 }
func (l Log) UndoLen() int  { return len(l.undo) }
func (l Log) RedoLen() int  { return len(l.redo) }

// UndoStack returns the undo entries, oldest first.
func (l Log) UndoStack() []Command { return append([]Command(nil), l.undo...) }

// RedoStack returns the redo entries; the last one is redone first.
func (l Log) RedoStack() []Command { return append([]Command(nil), l.redo...) }

// Clear empties both stacks, keeping the limit.
func (l Log) Clear() Log { return Log{limit: l.limit} }
