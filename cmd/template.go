package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/Justype/slurmit/internal/pyscript"
	"github.com/Justype/slurmit/internal/slurmit"
	"github.com/Justype/slurmit/internal/utils"
	"github.com/spf13/cobra"
)

var (
	templateFolder       string
	templateName         string
	templatePathToString bool
)

var templateCmd = &cobra.Command{
	Use:   "template [flags] <source.py> [name=value...]",
	Short: "Fill the placeholders of a Python template",
	Long: `Copy a Python script into --folder, replacing every "XXX_<NAME>_XXX"
placeholder (quotes included) with the literal of the matching argument.

  n_iter = "XXX_N_ITER_XXX"   ->   n_iter = 100

Values are read as YAML, like the arguments of run.`,
	Example: `  slurmit template train_template.py -d slurm n_iter=100 data='!path /scratch/d'
  slurmit template train_template.py -d slurm -n train_100.py n_iter=100`,
	Args:              cobra.MinimumNArgs(1),
	SilenceUsage:      true,
	ValidArgsFunction: fileArgCompletion(utils.IsPythonScript),
	RunE:              runTemplate,
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.Flags().StringVarP(&templateFolder, "folder", "d", ".", "folder the filled script is written to (must exist)")
	templateCmd.Flags().StringVarP(&templateName, "name", "n", "", "file name of the filled script (default: source name)")
	templateCmd.Flags().BoolVar(&templatePathToString, "path-to-string", false, "render !path arguments as plain strings")
}

func runTemplate(cmd *cobra.Command, args []string) error {
	callArgs, err := slurmit.ParseArguments(args[1:])
	if err != nil {
		return err
	}
	folder, err := filepath.Abs(templateFolder)
	if err != nil {
		return fmt.Errorf("invalid folder %s: %w", templateFolder, err)
	}
	if templateName == "" && filepath.Dir(mustAbs(args[0])) == folder {
		return fmt.Errorf("refusing to overwrite the template %s; pass --name", args[0])
	}

	path, err := pyscript.WriteFromTemplate(folder, args[0], templateName, callArgs,
		pyscript.LiteralOptions{PathToString: templatePathToString})
	if err != nil {
		return err
	}
	if utils.QuietMode {
		fmt.Println(path)
		return nil
	}
	utils.PrintSuccess("Program written: %s", utils.StylePath(path))
	return nil
}

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
