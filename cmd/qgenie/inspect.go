package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/qgenie"
)

func newInspectCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect <bundle>",
		Short: "Show the header and table of contents of a bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := qgenie.Inspect(args[0])
			if err != nil {
				return err
			}
			a.logger.Debug("inspected bundle", "path", info.Path, "entries", len(info.Entries))
			if asJSON {
				return writeInspectJSON(cmd.OutOrStdout(), info)
			}
			return writeInspectText(cmd.OutOrStdout(), info)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

type inspectJSON struct {
	Path             string      `json:"path"`
	Size             int64       `json:"size"`
	Digest           string      `json:"digest"`
	Checksum         string      `json:"checksum"`
	Version          uint16      `json:"version"`
	TotalRaw         uint64      `json:"totalRawSize"`
	TotalCompressed  uint64      `json:"totalCompressedSize"`
	CompressionRatio float64     `json:"compressionRatio"`
	Entries          []entryJSON `json:"entries"`
}

type entryJSON struct {
	Name       string  `json:"name"`
	Offset     uint64  `json:"offset"`
	CompLength uint64  `json:"compressedSize"`
	RawLength  *uint64 `json:"rawSize,omitempty"`
	CRC32      string  `json:"crc32,omitempty"`
}

func writeInspectJSON(w io.Writer, info *qgenie.Info) error {
	v := inspectJSON{
		Path:             info.Path,
		Size:             info.Size,
		Digest:           info.Digest.String(),
		Checksum:         fmt.Sprintf("%08x", info.Checksum),
		Version:          info.Header.Version,
		TotalRaw:         info.TotalRawSize(),
		TotalCompressed:  info.TotalCompressedSize(),
		CompressionRatio: info.CompressionRatio(),
		Entries:          make([]entryJSON, 0, len(info.Entries)),
	}
	for _, e := range info.Entries {
		ej := entryJSON{Name: e.Name, Offset: e.Offset, CompLength: e.CompLength}
		if e.RawKnown {
			raw := e.RawLength
			ej.RawLength = &raw
		}
		if e.HasCRC32 {
			ej.CRC32 = fmt.Sprintf("%08x", e.CRC32)
		}
		v.Entries = append(v.Entries, ej)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeInspectText(w io.Writer, info *qgenie.Info) error {
	fmt.Fprintf(w, "Path:      %s\n", info.Path)
	fmt.Fprintf(w, "Size:      %s\n", humanize.IBytes(uint64(info.Size))) //nolint:gosec // file size is non-negative
	fmt.Fprintf(w, "Digest:    %s\n", info.Digest)
	fmt.Fprintf(w, "Checksum:  %08x\n", info.Checksum)
	fmt.Fprintf(w, "Version:   %d\n", info.Header.Version)
	fmt.Fprintf(w, "Entries:   %d\n", len(info.Entries))
	fmt.Fprintf(w, "Raw:       %s\n", humanize.IBytes(info.TotalRawSize()))
	fmt.Fprintf(w, "Ratio:     %.2f\n\n", info.CompressionRatio())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tOFFSET\tCOMPRESSED\tRAW\tCRC32")
	for _, e := range info.Entries {
		raw := "?"
		if e.RawKnown {
			raw = humanize.IBytes(e.RawLength)
		}
		crc := "-"
		if e.HasCRC32 {
			crc = fmt.Sprintf("%08x", e.CRC32)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", e.Name, e.Offset, humanize.IBytes(e.CompLength), raw, crc)
	}
	return tw.Flush()
}
