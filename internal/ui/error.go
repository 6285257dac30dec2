package ui

import (
	"fmt"
	"os"
)

// ErrorExit prints the error message and exits the program with a non-zero
// status code. Known error shapes are converted into actionable messages
// before printing.
func ErrorExit(err error) {
	usefulErr := convertToUsefulError(err)

	fmt.Fprintln(os.Stderr, Colors.Red(fmt.Sprintf("Error occurred: %s", usefulErr.HumanError())))
	fmt.Fprintln(os.Stderr, Colors.Yellow(usefulErr.Help()))

	os.Exit(1)
}

// Fatalf prints a formatted message and exits with a non-zero status code.
func Fatalf(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, Colors.Red(fmt.Sprintf(format, args...)))
	os.Exit(1)
}
