package cli

import (
	"github.com/fatih/color"
	prettyjson "github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"
)

func logJSONCmd(cmd cobra.Command, v any) {
	data, err := prettyjson.Marshal(v)
	if err != nil {
		logErrorCmd(cmd, err)

		return
	}
	cmd.Println(string(data))
}

func logErrorCmd(cmd cobra.Command, err error) {
	boldRed := color.New(color.FgRed, color.Bold)
	cmd.PrintErrln(boldRed.Sprint("error:"), err.Error())
}

func logUsageCmd(cmd cobra.Command, usage string) {
	boldYellow := color.New(color.FgYellow, color.Bold)
	cmd.Println(boldYellow.Sprint("usage:"), usage)
}
