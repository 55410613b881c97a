package main

import "github.com/jmehdipour/shop-notifier/cmd"

func main() {
	cmd.Execute()
}
