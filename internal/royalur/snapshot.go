package royalur

// PieceCounts summarizes one player's pieces that are not on the board.
type PieceCounts struct {
	InHand    int `json:"in_hand"`
	Completed int `json:"completed"`
}

// Snapshot is a read-only view of the whole game for rendering and
// transport: the grid with the owning player of every square, both
// players' counts, and whose turn it is. LegalMoves lists the piece ids
// that may move with the current roll.
type Snapshot struct {
	Board         [BoardRows][BoardCols]Player `json:"board"`
	CurrentPlayer Player                       `json:"current_player"`
	Dice          int                          `json:"dice_result"`
	GameOver      bool                         `json:"game_over"`
	Winner        *Player                      `json:"winner"`
	PlayerOne     PieceCounts                  `json:"player1_pieces"`
	PlayerTwo     PieceCounts                  `json:"player2_pieces"`
	LegalMoves    []int                        `json:"legal_moves"`
}

func (that *Game) Snapshot() *Snapshot {
	snap := &Snapshot{
		CurrentPlayer: that.current,
		Dice:          that.dice,
		GameOver:      that.over,
		PlayerOne: PieceCounts{
			InHand:    that.board.PiecesInHand(PlayerOne),
			Completed: that.board.CompletedCount(PlayerOne),
		},
		PlayerTwo: PieceCounts{
			InHand:    that.board.PiecesInHand(PlayerTwo),
			Completed: that.board.CompletedCount(PlayerTwo),
		},
		LegalMoves: make([]int, 0, PiecesPerPlayer),
	}

	if that.winner.Valid() {
		winner := that.winner
		snap.Winner = &winner
	}

	for pos, piece := range that.board.occupied {
		snap.Board[pos.Row][pos.Col] = piece.owner
	}

	for _, piece := range that.LegalMoves() {
		snap.LegalMoves = append(snap.LegalMoves, piece.ID())
	}

	return snap
}
