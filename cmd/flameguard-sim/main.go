package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/flameguard/cmd/flameguard-sim/app"
)

func main() {
	app.NewApp().Run()
}
