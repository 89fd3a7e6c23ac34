package main

import "github.com/qore-hq/qore-backend/app"

func main() {
	app.New(nil).Run()
}
