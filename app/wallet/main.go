// This program is a command line client for generating wallet keys and
// moving value between addresses on a blocknode network.
package main

import "github.com/ardanlabs/blocknode/app/wallet/cmd"

func main() {
	cmd.Execute()
}
