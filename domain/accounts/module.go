package accounts

import (
	"go.uber.org/fx"
)

// Module provides the account directory and the preferences repository
var Module = fx.Module("accounts",
	fx.Provide(
		NewRepository,
		NewDBDirectory,
		fx.Annotate(
			func(d *DBDirectory) Directory { return d },
			fx.As(new(Directory)),
		),
	),
)
