package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DREAM-ODA-OS/eoxserver/pkg/rect"
)

var rectCmd = &cobra.Command{
	Use:   "rect",
	Short: "Pixel rectangle arithmetic",
	Long: `Rectangles are written as offset_x,offset_y,size_x,size_y.

Examples:
  eoxs rect intersect 0,0,100,100 50,50,100,100
  eoxs rect union 0,0,10,10 20,20,10,10`,
}

var rectIntersectCmd = &cobra.Command{
	Use:   "intersect <rect> <rect>",
	Short: "Print the intersection of two rectangles",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, b, err := parseRects(args)
		if err != nil {
			return err
		}
		if !a.Intersects(b) {
			return fmt.Errorf("%s and %s do not intersect", a, b)
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.Intersection(b))
		return nil
	},
}

var rectUnionCmd = &cobra.Command{
	Use:   "union <rect> <rect>",
	Short: "Print the bounding rectangle of two rectangles",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, b, err := parseRects(args)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.Union(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rectCmd)
	rectCmd.AddCommand(rectIntersectCmd, rectUnionCmd)
}

func parseRects(args []string) (rect.Rect, rect.Rect, error) {
	a, err := rect.Parse(args[0])
	if err != nil {
		return rect.Rect{}, rect.Rect{}, err
	}
	b, err := rect.Parse(args[1])
	if err != nil {
		return rect.Rect{}, rect.Rect{}, err
	}
	return a, b, nil
}
