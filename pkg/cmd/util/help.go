package util

import (
	"fmt"
	"io"

	"github.com/mpapenbr/pacelock/pkg/config"
)

// PrintMissingCredentials explains how to provide the iRacing credentials.
func PrintMissingCredentials(w io.Writer) {
	fmt.Fprintf(w, `ERROR: iRacing credentials not found!

Please set the following environment variables:
  %[1]s - Your iRacing username
  %[2]s - Your iRacing password

You can either:
  1. Export them in your shell:
     export %[1]s=your_username
     export %[2]s=your_password

  2. Create a %[3]s file with:
     %[1]s=your_username
     %[2]s=your_password

`, config.UsernameEnv, config.PasswordEnv, config.DefaultEnvFile)
}

// PrintLegacyAuthRequired explains how to enable legacy authentication.
func PrintLegacyAuthRequired(w io.Writer) {
	fmt.Fprint(w, `ERROR: iRacing Legacy Authorization Required!

To use this API, you must enable legacy authentication in your iRacing account:
  1. Log into your iRacing account at https://members.iracing.com/
  2. Go to Account Settings
  3. Find 'Allow applications to access your account via password'
  4. Check the box to enable legacy authentication

Note: This is required for third-party applications to access iRacing data.
`)
}
