package main

import (
	"moviedash-backend/cmd/moviedash/commands"
	"moviedash-backend/lib/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()
	commands.ExecuteContext(ctx)
}
