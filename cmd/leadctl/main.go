// Command leadctl runs the lead form rules offline: scoring answer sets,
// validating step input and inspecting saved progress.
package main

func main() {
	Execute()
}
