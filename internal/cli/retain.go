package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dwisetya/recase/internal/model"
)

var retainFlags struct {
	name     string
	brand    string
	os       string
	price    float64
	ram      float64
	storage  float64
	screen   float64
	battery  float64
	rating   float64
	camera   string
	inStock  bool
	label    string
	feedback string
}

// retainCmd represents the retain command
var retainCmd = &cobra.Command{
	Use:   "retain",
	Short: "Add a new phone to the catalog",
	Long: `Validate a new phone case and retain it into the catalog so future
queries can retrieve it. The case gets the next free ID and, unless a
label is given, a category label derived from its specs.

Examples:
  recase retain --name "Pixel 9a" --brand Google --os Android \
    --price 7500000 --ram 8 --storage 128 --battery 5100 --rating 4.5 --camera 48MP
  recase retain --name "Redmi 14C" --brand Xiaomi --price 1800000 \
    --ram 4 --storage 128 --feedback "budget pick from user survey"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		engine, err := newEngine(cfg, false)
		if err != nil {
			return err
		}

		newCase := model.Phone{
			Name:        retainFlags.name,
			Brand:       retainFlags.brand,
			OS:          retainFlags.os,
			Price:       retainFlags.price,
			RAM:         retainFlags.ram,
			Storage:     retainFlags.storage,
			ScreenSize:  retainFlags.screen,
			Battery:     retainFlags.battery,
			Rating:      retainFlags.rating,
			CameraLabel: retainFlags.camera,
			InStock:     retainFlags.inStock,
			Label:       retainFlags.label,
		}

		if _, err := engine.Retain(newCase, retainFlags.feedback); err != nil {
			return err
		}

		fmt.Printf("✓ Retained %q (%s) · catalog now holds %d cases\n",
			newCase.Name, newCase.Brand, engine.Size())
		return nil
	},
}

func init() {
	f := retainCmd.Flags()
	f.StringVar(&retainFlags.name, "name", "", "phone name (required)")
	f.StringVar(&retainFlags.brand, "brand", "", "brand (required)")
	f.StringVar(&retainFlags.os, "os", "", "operating system")
	f.Float64Var(&retainFlags.price, "price", 0, "price (required)")
	f.Float64Var(&retainFlags.ram, "ram", 0, "RAM in GB (required)")
	f.Float64Var(&retainFlags.storage, "storage", 0, "storage in GB (required)")
	f.Float64Var(&retainFlags.screen, "screen", 0, "screen size in inches")
	f.Float64Var(&retainFlags.battery, "battery", 0, "battery capacity in mAh")
	f.Float64Var(&retainFlags.rating, "rating", 0, "user rating")
	f.StringVar(&retainFlags.camera, "camera", "", "camera, e.g. \"48MP\"")
	f.BoolVar(&retainFlags.inStock, "in-stock", true, "phone is in stock")
	f.StringVar(&retainFlags.label, "label", "", "category label (derived from specs when empty)")
	f.StringVar(&retainFlags.feedback, "feedback", "", "free-form note on why this case is added")

	_ = retainCmd.MarkFlagRequired("name")
	_ = retainCmd.MarkFlagRequired("brand")
	_ = retainCmd.MarkFlagRequired("price")

	rootCmd.AddCommand(retainCmd)
}
