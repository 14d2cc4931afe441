// cloudtool is a CLI utility for inspecting and sampling point cloud files
// without opening a window.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Faultbox/splatview/internal/assets"
	"github.com/Faultbox/splatview/internal/config"
	"github.com/Faultbox/splatview/internal/engine/shader"
	"github.com/Faultbox/splatview/internal/pointcloud"
	"github.com/Faultbox/splatview/internal/sampler"
	"github.com/Faultbox/splatview/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "sample":
		cmdSample(args)
	case "sphere":
		cmdSphere(args)
	case "shaders":
		cmdShaders(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`cloudtool - point cloud file utility

Usage:
  cloudtool <command> [options]

Commands:
  info <file>                          Show vertex, face and attribute counts
  sample [-n N] [-seed S] [-o out] <file>
                                       Sample a mesh (or copy a point set) to XYZ
  sphere [-n N] [-seed S] [-o out]     Sample the unit sphere to XYZ
  shaders [-dir D]                     List shader techniques and their passes
  config [-o out] [-force]             Write the default viewer config

Examples:
  cloudtool info bunny.ply
  cloudtool sample -n 200 -o bunny.xyz bunny.obj
  cloudtool sphere -n 5000 > sphere.xyz`)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: cloudtool info <file>")
		os.Exit(1)
	}

	geom, err := formats.Load(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := geom.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid geometry: %v\n", err)
		os.Exit(1)
	}

	lo, hi := (&pointcloud.Cloud{Positions: geom.Positions}).Bounds()

	fmt.Printf("File:     %s\n", args[0])
	fmt.Printf("Vertices: %d\n", len(geom.Positions))
	fmt.Printf("Faces:    %d\n", len(geom.Faces))
	fmt.Printf("Normals:  %v\n", geom.Normals != nil)
	fmt.Printf("Colors:   %v\n", geom.Colors != nil)
	fmt.Printf("Bounds:   (%g, %g, %g) - (%g, %g, %g)\n", lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z)
}

func cmdSample(args []string) {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	perTriangle := fs.Int("n", 500, "Samples per triangle")
	seed := fs.Int64("seed", 0, "Sampler seed (0 = time)")
	output := fs.String("o", "", "Output file (default stdout)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: cloudtool sample [-n N] [-seed S] [-o out] <file>")
		os.Exit(1)
	}

	loader := assets.NewLoader(*perTriangle, newSource(*seed))
	cloud, err := loader.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	writeCloud(cloud, *output)
}

func cmdSphere(args []string) {
	fs := flag.NewFlagSet("sphere", flag.ExitOnError)
	count := fs.Int("n", 2000, "Disk samples (each yields two points)")
	seed := fs.Int64("seed", 0, "Sampler seed (0 = time)")
	output := fs.String("o", "", "Output file (default stdout)")
	fs.Parse(args)

	writeCloud(sampler.Sphere("sphere", *count, newSource(*seed)), *output)
}

func cmdShaders(args []string) {
	fs := flag.NewFlagSet("shaders", flag.ExitOnError)
	dir := fs.String("dir", "", "Shader override directory")
	fs.Parse(args)

	cat, err := shader.NewCatalog(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for i, t := range cat.Techniques() {
		fmt.Printf("%d. %s (program %s)\n", i, t.Description, t.Program)
		for j, p := range t.Passes {
			fmt.Printf("     pass %d: %-14s %s\n", j, p.Kind, p.Program)
		}
	}
	fmt.Printf("\n%d programs: %v\n", len(cat.Names()), cat.Names())
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	output := fs.String("o", "", "Output file (default: user config directory)")
	force := fs.Bool("force", false, "Overwrite an existing file")
	fs.Parse(args)

	path := *output
	if path == "" {
		path = filepath.Join(config.ConfigDir(), "config.yaml")
	}
	if _, err := os.Stat(path); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: %s exists (use -force to overwrite)\n", path)
		os.Exit(1)
	}

	cfg := config.Default()
	var err error
	if *output == "" {
		err = cfg.Save()
	} else {
		err = cfg.SaveTo(path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Wrote default config to %s\n", path)
}

func newSource(seed int64) sampler.Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return sampler.NewSource(seed)
}

func writeCloud(cloud *pointcloud.Cloud, output string) {
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	geom := &formats.Geometry{
		Positions: cloud.Positions,
		Normals:   cloud.Normals,
		Colors:    cloud.Colors,
	}
	if err := formats.WriteXYZ(w, geom); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing cloud: %v\n", err)
		os.Exit(1)
	}

	if output != "" {
		fmt.Fprintf(os.Stderr, "Wrote %d points to %s\n", cloud.Len(), output)
	}
}
