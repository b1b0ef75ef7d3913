package commands

import (
	"context"
	"fmt"
)

// HealthCmd checks the listing backend.
type HealthCmd struct{}

func (h *HealthCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := setup(ctx, globals)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.api.Health(ctx); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "%s: ok\n", a.api.BaseURL())
	return nil
}
