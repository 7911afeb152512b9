package devices

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scenecap/scenecap/internal/audio"
	"github.com/scenecap/scenecap/internal/conf"
)

// Command creates a new command for listing audio capture devices.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List available audio capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDevices(cmd)
		},
	}

	return cmd
}

func listDevices(cmd *cobra.Command) error {
	env := audio.NewMalgoEnvironment(conf.SampleRate, conf.NumChannels, nil)

	list, err := audio.ListInputDevices(cmd.Context(), env)
	if err != nil {
		return fmt.Errorf("failed to list capture devices: %w", err)
	}

	if len(list) == 0 {
		cmd.Println("No audio capture devices found")
		return nil
	}

	cmd.Println("Available audio capture devices:")
	for _, dev := range list {
		marker := " "
		if dev.Default {
			marker = "*"
		}
		cmd.Printf("%s %d: %s\n", marker, dev.Index, dev.Name)
	}
	return nil
}
