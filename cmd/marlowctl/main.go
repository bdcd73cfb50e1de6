// Command marlowctl manages a marlow data directory from the command line.
package main

func main() {
	Execute()
}
