package main

import(
	"flag"
	"log"

	"github.com/colorbench/chartcal/pkg/chart"
	"github.com/colorbench/chartcal/pkg/correct"
)

var(
	fMeasurements string
	fChartImage   string
	fDegree       int
	fOutput       string
	fSwatch       string
	fFont         string
	fVerbosity    int
)

func init() {
	flag.StringVar(&fMeasurements, "measurements", "", "chart measurement YAML (camera RGB + reference XYZ per patch)")
	flag.StringVar(&fChartImage, "chartimage", "", "instead of -measurements, sample patches from this chart photo (TIFF/PNG)")
	flag.IntVar(&fDegree, "degree", 2, "root-polynomial degree (1..4)")
	flag.StringVar(&fOutput, "o", "models.yaml", "where to write the fitted model set")
	flag.StringVar(&fSwatch, "swatch", "", "also render a before/after swatch card PNG here")
	flag.StringVar(&fFont, "font", "", "TTF file for swatch card labels")
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.Parse()

	log.Printf("chartcal-fit starting\n")
}

func loadMeasurement() chart.Measurement {
	switch {
	case fMeasurements != "":
		m, err := chart.LoadMeasurement(fMeasurements)
		if err != nil {
			log.Fatal(err)
		}
		return m

	case fChartImage != "":
		img, exposure, err := chart.LoadChartImage(fChartImage)
		if err != nil {
			log.Fatal(err)
		}
		cc := chart.ColorChecker()
		m, err := chart.SamplePatches(img, cc, chart.DefaultGridSpec(img, cc))
		if err != nil {
			log.Fatal(err)
		}
		exposure.Stamp(&m)
		return m

	default:
		log.Fatal("need one of -measurements or -chartimage")
		return chart.Measurement{}
	}
}

func main() {
	m := loadMeasurement()
	log.Printf("loaded %d patch measurements (chart %s)\n", len(m.Patches), m.Chart)

	rgb, xyz := m.RGBMatrix(), m.XYZMatrix()

	models, err := correct.Fit(rgb, xyz, fDegree)
	if err != nil {
		log.Fatal(err)
	}
	if err := correct.SaveModels(fOutput, models); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote fitted models to %s\n", fOutput)

	if fVerbosity > 0 {
		log.Printf("Fitted models:-\n\n%s\n", models.AsYaml())
	}

	corrected, err := correct.ApplyEnsembleCorrection(rgb, models)
	if err != nil {
		log.Fatal(err)
	}

	report, err := chart.NewReport(m, corrected)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("%s", report)

	if fSwatch != "" {
		card, err := chart.RenderSwatchCard(m, corrected, 6, fFont)
		if err != nil {
			log.Fatal(err)
		}
		if err := chart.SaveSwatchCard(fSwatch, card); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote swatch card to %s\n", fSwatch)
	}
}
