package cmd

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/fabricio-araujo94/solid/asset/loader"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// List the supported model formats.
func ListFormats(ctx *cli.Context) error {
	if _, err := setup(ctx); err != nil {
		return err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"#", "Loader", "Extensions"})
	for index, l := range loader.DefaultRegistry().Loaders() {
		table.Append([]string{
			strconv.Itoa(index + 1),
			l.Name(),
			strings.Join(l.Extensions(), ", "),
		})
	}
	table.Render()

	logger.Noticef("supported model formats (first match wins)\n%s", buf.String())
	return nil
}
