package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mhwmods/namecolor/address"
	"github.com/mhwmods/namecolor/hook"
)

var scanCatalog string

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVarP(&scanCatalog, "catalog", "c", address.DefaultCatalogPath, "Address catalog")
}

var scanCmd = &cobra.Command{
	Use:   "scan <game.exe>",
	Short: "Resolve the address catalog against a game executable",
	Long:  "Searches the executable for every signature in the catalog and prints\nwhere each symbol resolves, relative to the image base. The hook target\nis also checked for a prologue that can be patched.",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	catalog, err := address.LoadCatalog(scanCatalog)
	if err != nil {
		return err
	}

	img, err := address.OpenPE(args[0])
	if err != nil {
		return err
	}
	repo := address.NewRepository(catalog, img)

	ids := make([]string, 0, len(catalog.Symbols))
	for id := range catalog.Symbols {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := cmd.OutOrStdout()
	failed := 0
	for _, id := range ids {
		addr, err := repo.Resolve(id)
		if err != nil {
			fmt.Fprintf(out, "%-32s %v\n", id, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "%-32s +0x%x\n", id, img.RVA(addr))
	}

	if target, err := repo.Resolve(address.ClonePlayerShortInfo); err == nil {
		code := img.Bytes(target, 32)
		if n, err := hook.Check(code); err != nil {
			fmt.Fprintf(out, "\n%s can't be hooked: %v\n", address.ClonePlayerShortInfo, err)
			failed++
		} else if listing, err := hook.Disassemble(code[:n], target); err == nil {
			fmt.Fprintf(out, "\n%s displaces %d bytes:\n%s", address.ClonePlayerShortInfo, n, listing)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d problem(s) found", failed)
	}
	return nil
}
