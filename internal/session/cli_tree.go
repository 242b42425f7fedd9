package session

import (
	"context"
	"fmt"
	"io"

	"github.com/mstoyanov/booker/internal/cli"
	"github.com/mstoyanov/booker/internal/engine"
	"github.com/mstoyanov/booker/internal/parser"
)

// buildCommandTree reproduces CSession::init_cli's menu layout: a root
// menu with "status"/"color"/"nocolor", and one submenu per movie each
// holding one submenu per theatre with "seats"/"book"/"trybook"/
// "unbook"/"status".
func buildCommandTree(s *Session, catalog *engine.Catalog) *cli.Engine {
	root := cli.NewMenu("cli", "root")

	root.AddCommand("status", "Show current booking status", func(out io.Writer, arg string) {
		fmt.Fprint(out, s.statusProvider())
		fmt.Fprint(out, "\n")
	})

	root.AddCommand("color", "Enable colors in the cli", func(out io.Writer, arg string) {
		s.colors.enable()
		fmt.Fprint(out, "Colors ON\n")
	})

	root.AddCommand("nocolor", "Disable colors in the cli", func(out io.Writer, arg string) {
		s.colors.disable()
		fmt.Fprint(out, "Colors OFF\n")
	})

	for _, movieName := range catalog.MovieNames() {
		movieName := movieName
		theatreNames, err := catalog.TheatreNames(movieName)
		if err != nil || len(theatreNames) == 0 {
			continue
		}

		movieMenu := cli.NewMenu(movieName, "Movie: "+movieName)

		for _, theatreName := range theatreNames {
			theatreName := theatreName
			theatreMenu := cli.NewMenu(theatreName, "Theatre: "+theatreName)

			theatreMenu.AddCommand("seats", "Show free seats", func(out io.Writer, arg string) {
				s.cmdSeats(out, movieName, theatreName)
			})
			theatreMenu.AddCommand("book", "Book selected seats", func(out io.Writer, arg string) {
				s.cmdBook(out, movieName, theatreName, arg, false)
			})
			theatreMenu.AddCommand("trybook", "Try to book selected seats", func(out io.Writer, arg string) {
				s.cmdBook(out, movieName, theatreName, arg, true)
			})
			theatreMenu.AddCommand("unbook", "Release selected seats", func(out io.Writer, arg string) {
				s.cmdUnbook(out, movieName, theatreName, arg)
			})
			theatreMenu.AddCommand("status", "Show our booking status", func(out io.Writer, arg string) {
				s.cmdBookingStatus(out, movieName, theatreName)
			})

			movieMenu.AddSubmenu(theatreMenu)
		}

		root.AddSubmenu(movieMenu)
	}

	return cli.NewEngine(root)
}

func (s *Session) cmdSeats(out io.Writer, movie, theatre string) {
	free, err := s.eng.FreeSeats(movie, theatre)
	if err != nil {
		s.writeSystemError(out)
		return
	}
	if len(free) == 0 {
		fmt.Fprint(out, "There are no seats available\n")
		return
	}
	fmt.Fprintf(out, "Free available seats: %s\n", parser.RenderSeatList(free))
}

func (s *Session) cmdBook(out io.Writer, movie, theatre, arg string, bestEffort bool) {
	seats, err := parseArgSeats(arg)
	if err != nil {
		fmt.Fprintf(out, "%s\n", s.colors.errorf("Failed to process an request"))
		return
	}

	_, unavailable, err := s.eng.Book(s.booker, movie, theatre, seats, bestEffort)
	if err != nil {
		fmt.Fprintf(out, "%s\n", s.colors.errorf("Failed to process an request"))
		return
	}

	owned, err := s.eng.OwnedSeats(s.booker, movie, theatre)
	if err != nil {
		fmt.Fprintf(out, "%s\n", s.colors.errorf("Failed to process an request"))
		return
	}

	fmt.Fprintf(out, "%s\n", s.colors.ok("Currently reserved seats: "+parser.RenderSeatList(owned)))

	if bestEffort && len(unavailable) > 0 {
		fmt.Fprintf(out, "%s\n", s.colors.warn("Unavailble seats: "+parser.RenderSeatList(unavailable)))
	}

	if s.invalidateStatus != nil {
		s.invalidateStatus(context.Background())
	}

	granted := seats
	if len(unavailable) > 0 {
		granted = nil
		if bestEffort {
			refused := make(map[int]bool, len(unavailable))
			for _, seat := range unavailable {
				refused[seat] = true
			}
			for _, seat := range seats {
				if !refused[seat] {
					granted = append(granted, seat)
				}
			}
		}
	}

	if len(granted) > 0 && s.audit != nil {
		go func(seats []int) {
			if err := s.audit.PublishBookingConfirmed(context.Background(), s.booker.UID(), movie, theatre, seats); err != nil && s.log != nil {
				s.log.Printf("session %s: audit publish failed: %v", s.booker.UID(), err)
			}
		}(granted)
	}
}

func (s *Session) cmdUnbook(out io.Writer, movie, theatre, arg string) {
	seats, err := parseArgSeats(arg)
	if err != nil {
		fmt.Fprintf(out, "%s\n", s.colors.errorf("Failed to process an request"))
		return
	}

	_, invalid, err := s.eng.Unbook(s.booker, movie, theatre, seats)
	if err != nil {
		fmt.Fprintf(out, "%s\n", s.colors.errorf("Failed to process an request"))
		return
	}

	owned, err := s.eng.OwnedSeats(s.booker, movie, theatre)
	if err != nil {
		fmt.Fprintf(out, "%s\n", s.colors.errorf("Failed to process an request"))
		return
	}

	fmt.Fprintf(out, "%s\n", s.colors.ok("Currently reserved seats: "+parser.RenderSeatList(owned)))

	if s.invalidateStatus != nil {
		s.invalidateStatus(context.Background())
	}

	if len(invalid) > 0 {
		fmt.Fprintf(out, "%s\n", s.colors.warn("Invalid seats: "+parser.RenderSeatList(invalid)))
	}
}

func (s *Session) cmdBookingStatus(out io.Writer, movie, theatre string) {
	owned, err := s.eng.OwnedSeats(s.booker, movie, theatre)
	if err != nil {
		s.writeSystemError(out)
		return
	}
	fmt.Fprintf(out, "Currently reserved seats: %s\n", parser.RenderSeatList(owned))
}

func (s *Session) writeSystemError(out io.Writer) {
	fmt.Fprintf(out, "%s\n", s.colors.errorf("System error"))
}
