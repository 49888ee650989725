package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"goattend/config"
)

var configEditKeepInvalid bool

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor.",
	Long: `Open the active goattend config file in your editor.

Editor selection order:
1) $VISUAL
2) $EDITOR
3) vi

If no config file exists yet, this command creates one with an example template first.
After the editor exits, the content is validated as goattend YAML config,
including the work profile schedule. An invalid result is rolled back to the
previous content unless --keep-invalid is set.`,
	Example: `
  # Edit active config
  goattend config edit

  # Keep the edited file even if it does not validate
  goattend config edit --keep-invalid
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}

		created, err := ensureConfigFileWithTemplate(configPath)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("No config file found. Created example config at: %s\n", configPath)
		}
		previous, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("reading config failed: %w", err)
		}

		editor := resolveEditorValue(os.Getenv("VISUAL"), os.Getenv("EDITOR"))
		editorCommand, err := buildEditorCommand(editor, configPath)
		if err != nil {
			return err
		}
		editorCommand.Stdin = os.Stdin
		editorCommand.Stdout = os.Stdout
		editorCommand.Stderr = os.Stderr
		if err := editorCommand.Run(); err != nil {
			return fmt.Errorf("opening editor failed: %w", err)
		}

		content, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("reading edited config failed: %w", err)
		}
		enabled, err := validateEditedConfig(content)
		if err != nil {
			if configEditKeepInvalid {
				return fmt.Errorf("config validation failed in %s: %w", configPath, err)
			}
			if restoreErr := os.WriteFile(configPath, previous, 0o600); restoreErr != nil {
				return fmt.Errorf("config validation failed in %s: %w (restoring previous content failed: %v)", configPath, err, restoreErr)
			}
			return fmt.Errorf("config validation failed in %s, previous content restored: %w", configPath, err)
		}

		fmt.Printf("Configuration saved and validated: %s\n", configPath)
		fmt.Printf("Enabled weekdays: %s\n", formatWeekdays(enabled))
		return nil
	},
}

// validateEditedConfig checks the YAML and the work profile it describes
// and returns the enabled ISO weekdays.
func validateEditedConfig(content []byte) ([]int, error) {
	cfg, err := config.ValidateYAMLContent(content)
	if err != nil {
		return nil, err
	}
	p, err := cfg.Profile()
	if err != nil {
		return nil, fmt.Errorf("work profile invalid: %w", err)
	}
	return p.EnabledWeekdays(), nil
}

func resolveConfigEditPath(configFileFlag, configFileUsed string) (string, error) {
	if strings.TrimSpace(configFileFlag) != "" {
		return configFileFlag, nil
	}
	if strings.TrimSpace(configFileUsed) != "" {
		return configFileUsed, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".goattend.yaml"), nil
}

func ensureConfigFileWithTemplate(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking config file failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory failed: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.ExampleYAML()), 0o600); err != nil {
		return false, fmt.Errorf("creating example config failed: %w", err)
	}

	return true, nil
}

func resolveEditorValue(visual, editor string) string {
	if strings.TrimSpace(visual) != "" {
		return visual
	}
	if strings.TrimSpace(editor) != "" {
		return editor
	}
	return "vi"
}

func buildEditorCommand(editorValue, configPath string) (*exec.Cmd, error) {
	fields := strings.Fields(strings.TrimSpace(editorValue))
	if len(fields) == 0 {
		return nil, fmt.Errorf("editor command is empty")
	}

	args := append(fields[1:], configPath)
	return exec.Command(fields[0], args...), nil
}

func init() {
	configCmd.AddCommand(configEditCmd)
	configEditCmd.Flags().BoolVar(&configEditKeepInvalid, "keep-invalid", false, "Keep the edited file even if validation fails")
}
