package notes

import (
	"context"
	"fmt"
	"log/slog"

	"lorekeeper/app/client/host"

	"github.com/samber/do"
)

type characterAPI interface {
	Character(ctx context.Context, id string) (*host.Character, error)
	UpdateCharacter(ctx context.Context, character *host.Character) error
}

// Service appends memory update blocks to character notes through the
// host persistence API.
type Service struct {
	hostClient characterAPI
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		hostClient: do.MustInvoke[*host.Client](di),
	}, nil
}

// Apply fetches the character record, appends block to its notes
// verbatim and writes the record back. The fetch and the save are not
// transactional: a save failure leaves the host record untouched.
func (s *Service) Apply(ctx context.Context, characterID, block string) error {
	character, err := s.hostClient.Character(ctx, characterID)
	if err != nil {
		return fmt.Errorf("fetch character: %w", err)
	}

	character.Notes += block

	if err = s.hostClient.UpdateCharacter(ctx, character); err != nil {
		return fmt.Errorf("save character: %w", err)
	}

	slog.Info("Appended memory update",
		"character", character.Name,
		"notes_length", len(character.Notes),
	)

	return nil
}
