package commands

import (
	"bufio"
	"fmt"
	"strings"

	securityRepository "github.com/stellation/cloudview/internal/security/repository"
	securityService "github.com/stellation/cloudview/internal/security/service"
)

// RunResetKeyStore deletes the encryption key and the credential store.
// This is the recovery path for corrupt or lost key material: every API key
// is destroyed and a fresh store is seeded on the next startup. Without the
// confirm flag the user is prompted interactively.
//
// It works directly on the files rather than through the container, because
// the container refuses to initialize exactly when a reset is needed.
func RunResetKeyStore(storageDir string, confirm bool, io IOTuple) error {
	if !confirm {
		_, _ = fmt.Fprintln(io.Writer, "This permanently deletes the encryption key and ALL API keys.")
		_, _ = fmt.Fprint(io.Writer, "Continue? (y/n): ")

		answer, err := bufio.NewReader(io.Reader).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			_, _ = fmt.Fprintln(io.Writer, "Aborted.")
			return nil
		}
	}

	if err := securityService.NewFileKeyStore(storageDir, nil).Remove(); err != nil {
		return err
	}
	if err := securityRepository.NewFileCredentialRepository(storageDir, nil).Remove(); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(io.Writer, "Key store reset. A new key and bootstrap admin key will be created on next startup.")
	return nil
}
