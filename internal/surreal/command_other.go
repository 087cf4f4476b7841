//go:build !darwin

package surreal

func buildCommand(args []string) []string {
	return args
}
