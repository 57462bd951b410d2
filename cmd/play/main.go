package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/royalur-backend/internal/royalur"
	"github.com/rocketscienceinc/royalur-backend/internal/service"
)

// play runs a local hot-seat match on the bare engine, without any of
// the server machinery. Handy for trying the rules out.
func main() {
	vsBot := flag.Bool("bot", false, "let a random bot play the second side")
	seed := flag.Int64("seed", 0, "dice seed, 0 uses the current time")
	flag.Parse()

	game := royalur.NewGame()
	if *seed != 0 {
		game.SetDiceRoller(royalur.NewSeededDiceRoller(*seed))
	}

	input := bufio.NewScanner(os.Stdin)
	bot := service.NewBotService()

	fmt.Println("The Royal Game of Ur")
	fmt.Println("First to bring all seven pieces home wins. Rosettes [ ** ] grant another roll.")

	for !game.IsOver() {
		fmt.Println()
		fmt.Print(renderBoard(game))
		fmt.Print(renderStatus(game))

		if *vsBot && game.CurrentPlayer() == royalur.PlayerTwo {
			if err := playBotTurn(game, bot); err != nil {
				fmt.Fprintln(os.Stderr, "bot error:", err)
				os.Exit(1)
			}
			continue
		}

		if err := playHumanTurn(game, input); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	fmt.Println()
	fmt.Print(renderBoard(game))
	fmt.Printf("\n%s wins!\n", game.Winner())
}

func playHumanTurn(game *royalur.Game, input *bufio.Scanner) error {
	current := game.CurrentPlayer()

	fmt.Printf("%s, press enter to roll", current)
	if !input.Scan() {
		return errors.New("input closed")
	}

	dice, err := game.RollDice()
	if err != nil {
		return err
	}

	fmt.Printf("%s rolled %d\n", current, dice)

	moves := game.LegalMoves()
	if len(moves) == 0 {
		fmt.Println("no legal moves, the turn passes")
		game.AdvanceTurn()
		return nil
	}

	for _, piece := range moves {
		fmt.Printf("  [%d] %s\n", piece.ID(), describeMove(game.Board(), piece, dice))
	}

	piece := promptPiece(input, moves)
	if piece == nil {
		return errors.New("input closed")
	}

	bonus, err := game.MakeMove(piece)
	if err != nil {
		return err
	}

	if game.IsOver() {
		return nil
	}

	if bonus {
		fmt.Println("rosette! roll again")
		return nil
	}

	game.AdvanceTurn()

	return nil
}

func playBotTurn(game *royalur.Game, bot service.BotService) error {
	current := game.CurrentPlayer()

	dice, err := game.RollDice()
	if err != nil {
		return err
	}

	fmt.Printf("%s rolled %d\n", current, dice)

	if len(game.LegalMoves()) == 0 {
		fmt.Printf("%s has no legal moves, the turn passes\n", current)
		game.AdvanceTurn()
		return nil
	}

	piece, err := bot.ChoosePiece(game)
	if err != nil {
		return err
	}

	fmt.Printf("%s moves piece %d, %s\n", current, piece.ID(), describeMove(game.Board(), piece, dice))

	bonus, err := game.MakeMove(piece)
	if err != nil {
		return err
	}

	if game.IsOver() {
		return nil
	}

	if bonus {
		fmt.Printf("%s landed on a rosette and rolls again\n", current)
		return nil
	}

	game.AdvanceTurn()

	return nil
}

func promptPiece(input *bufio.Scanner, moves []*royalur.Piece) *royalur.Piece {
	for {
		fmt.Print("piece to move: ")
		if !input.Scan() {
			return nil
		}

		id, err := strconv.Atoi(strings.TrimSpace(input.Text()))
		if err == nil {
			for _, piece := range moves {
				if piece.ID() == id {
					return piece
				}
			}
		}

		fmt.Println("enter the number of one of the listed pieces")
	}
}

func describeMove(board *royalur.Board, piece *royalur.Piece, dice int) string {
	path := royalur.PathFor(piece.Owner())

	if piece.Location().IsInHand() {
		return fmt.Sprintf("enter the board at %s", path[dice-1])
	}

	index, err := board.LogicalIndex(piece)
	if err != nil {
		return "stuck"
	}

	pos := path[index]
	newIndex := index + dice
	if newIndex == royalur.PathLength {
		return fmt.Sprintf("bear off from %s", pos)
	}

	return fmt.Sprintf("%s -> %s", pos, path[newIndex])
}

func renderBoard(game *royalur.Game) string {
	board := game.Board()

	var b strings.Builder

	b.WriteString("     0     1     2     3     4     5     6     7\n")

	for row := 0; row < royalur.BoardRows; row++ {
		fmt.Fprintf(&b, " %d ", row)

		for col := 0; col < royalur.BoardCols; col++ {
			pos := royalur.Position{Row: row, Col: col}
			if !royalur.Exists(pos) {
				b.WriteString("      ")
				continue
			}

			piece := board.OccupantAt(pos)
			switch {
			case piece != nil:
				fmt.Fprintf(&b, "[P%d-%d]", piece.Owner(), piece.ID())
			case royalur.IsRosette(pos):
				b.WriteString("[ ** ]")
			default:
				b.WriteString("[ .. ]")
			}
		}

		b.WriteString("\n")
	}

	return b.String()
}

func renderStatus(game *royalur.Game) string {
	board := game.Board()

	var b strings.Builder
	for _, player := range []royalur.Player{royalur.PlayerOne, royalur.PlayerTwo} {
		fmt.Fprintf(&b, "%s: %d in hand, %d completed\n",
			player, board.PiecesInHand(player), board.CompletedCount(player))
	}

	return b.String()
}
