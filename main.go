package main

import "github.com/frahmantamala/pix-donation/cmd"

func main() {
	cmd.Execute()
}
