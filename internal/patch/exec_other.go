//go:build !unix

package patch

func checkExecutable(string) error {
	return nil
}
