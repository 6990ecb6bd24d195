// Command fintrack-admin runs operator tasks against the fintrack record store.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
