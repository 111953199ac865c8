package entity

// Player is immutable once created: a mark and whether a human controls it.
type Player struct {
	mark  Mark
	human bool
}

func NewPlayer(mark Mark, human bool) Player {
	return Player{
		mark:  mark,
		human: human,
	}
}

func (that Player) Mark() Mark {
	return that.mark
}

func (that Player) IsHuman() bool {
	return that.human
}
