// Command memsimctl drives the memory-management simulator from the command
// line: scripted scenarios, stress runs, layout reports and an HTTP view.
package main

func main() {
	execute()
}
