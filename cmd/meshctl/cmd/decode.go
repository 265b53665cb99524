/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/facebook/nanomesh/mesh/protocol"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [hex frame]",
	Short: "decode a hex-encoded captured mesh frame and pretty-print its fields",
	Long: "decode reads a hex-encoded " + fmt.Sprint(protocol.PacketBytes) +
		"-byte frame (the bare packet, without its preamble) from an argument" +
		" or stdin, runs it through protocol.Deserialize/protocol.Unpack, and" +
		" prints the fields colorized by checksum and source validity.",
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

func init() {
	RootCmd.AddCommand(decodeCmd)
}

func runDecode(_ *cobra.Command, args []string) error {
	var raw string
	if len(args) == 1 {
		raw = args[0]
	} else {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		raw = string(b)
	}
	raw = strings.TrimSpace(raw)

	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return fmt.Errorf("invalid hex input: %w", err)
	}
	if len(decoded) != protocol.PacketBytes {
		return fmt.Errorf("expected %d bytes, got %d", protocol.PacketBytes, len(decoded))
	}

	var frame [protocol.PacketBytes]byte
	copy(frame[:], decoded)
	pkt := protocol.Deserialize(frame)

	checksumOK := protocol.IsChecksumCorrect(pkt)
	checksumStr := color.GreenString("ok")
	if !checksumOK {
		checksumStr = color.RedString("bad")
	}

	meta, unpackErr := protocol.Unpack(pkt)
	sourceStr := color.GreenString("%d", pkt.Source)
	if unpackErr != nil {
		sourceStr = color.RedString("0 (malformed: %v)", unpackErr)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetColWidth(20)
	table.SetHeader([]string{"field", "value"})
	table.Append([]string{"source", sourceStr})
	table.Append([]string{"destination", fmt.Sprintf("%d", pkt.Destination)})
	table.Append([]string{"id", fmt.Sprintf("%d", pkt.ID)})
	table.Append([]string{"lifetime", fmt.Sprintf("%d", pkt.Lifetime)})
	if unpackErr == nil {
		table.Append([]string{"state", meta.State.String()})
		table.Append([]string{"ignore_duplications", fmt.Sprintf("%v", meta.IgnoreDuplications)})
	}
	dataLen := pkt.DataLength
	if dataLen > protocol.ContentSize {
		dataLen = protocol.ContentSize
	}
	table.Append([]string{"data_length", fmt.Sprintf("%d", pkt.DataLength)})
	table.Append([]string{"data", fmt.Sprintf("%q", pkt.Data[:dataLen])})
	table.Append([]string{"checksum", fmt.Sprintf("0x%02x (%s)", pkt.Checksum, checksumStr)})
	table.Render()

	return nil
}
