package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/taigrr/infinigallery/pkg/models"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <snapshot.glb>",
		Short: "Display gallery snapshot information",
		Long:  "Display the planes of a .glb written by the snapshot command: position, opacity, triangle count and texture size.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd, args[0])
		},
	}
}

func runInfo(cmd *cobra.Command, path string) error {
	stat, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	scene, err := models.LoadGLB(path)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:       %s\n", filepath.Base(path))
	fmt.Fprintf(out, "Scene:      %s\n", scene.Name)
	fmt.Fprintf(out, "Size:       %.2f KB\n", float64(stat.Size())/1024)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Planes:     %d\n", len(scene.Planes))
	fmt.Fprintf(out, "Triangles:  %d\n", scene.TriangleCount())
	fmt.Fprintf(out, "Textures:   %d\n", scene.TextureCount())
	fmt.Fprintln(out)
	for _, p := range scene.Planes {
		tex := "none"
		if p.Image != nil {
			b := p.Image.Bounds()
			tex = fmt.Sprintf("%dx%d", b.Dx(), b.Dy())
		}
		fmt.Fprintf(out, "  plane %2d  image %2d  at (%6.2f, %6.2f, %6.2f)  opacity %.2f  texture %s\n",
			p.Slot, p.ImageIndex, p.Translation.X, p.Translation.Y, p.Translation.Z, p.Opacity, tex)
	}
	return nil
}
