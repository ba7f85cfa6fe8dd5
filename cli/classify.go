package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go-silversense/fusion"
	"go-silversense/guidance"
	"go-silversense/intent"
	"go-silversense/sound"
	"go-silversense/types"

	"github.com/spf13/cobra"
)

var (
	classifyText       string
	classifyEvent      string
	classifyConfidence float64
	classifySource     string
)

// classifyOutput is what classify prints.
type classifyOutput struct {
	Intent    intent.Intent         `json:"intent"`
	Situation types.SituationRecord `json:"situation"`
	Guideline string                `json:"guideline"`
}

// classifyOnce runs the mapper, the normalizer and the engine without any
// network collaborator.
func classifyOnce(rules *intent.Rules, text, event string, confidence float64, source types.Source) (classifyOutput, error) {
	snd, err := sound.NormalizeSound(event, confidence)
	if err != nil {
		return classifyOutput{}, err
	}
	in, speech := rules.Analyze(text)
	rec := fusion.Fuse(&speech, sound.Ptr(snd), fusion.WithSource(source))
	return classifyOutput{
		Intent:    in,
		Situation: rec,
		Guideline: guidance.GuidanceFor(rec.SituationID),
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify one transcript and sound label",
	Long: `Classify one transcript and sound label and print the situation record
with the built-in fallback guidance. No network service is called.

Examples:
  silversense classify --text "불이 났어요"
  silversense classify --text "넘어졌어요" --event fall --confidence 0.8 --source test`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		rules, err := intent.LoadFile(cfg.IntentRulesPath)
		if err != nil {
			return err
		}
		src, err := types.ParseSource(classifySource)
		if err != nil {
			return err
		}

		out, err := classifyOnce(rules, classifyText, classifyEvent, classifyConfidence, src)
		if err != nil {
			return fmt.Errorf("invalid sound input: %w", err)
		}
		return writeJSON(os.Stdout, out)
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyText, "text", "", "transcript text")
	classifyCmd.Flags().StringVar(&classifyEvent, "event", "", "sound event: fall, fire, confined, ambient_noise (empty for none)")
	classifyCmd.Flags().Float64Var(&classifyConfidence, "confidence", 0, "sound confidence in [0,1]")
	classifyCmd.Flags().StringVar(&classifySource, "source", "test", "meta source: realtime, batch_dataset, test")
	rootCmd.AddCommand(classifyCmd)
}
