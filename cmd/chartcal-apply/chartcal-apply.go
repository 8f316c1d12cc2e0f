package main

import(
	"flag"
	"image/png"
	"log"
	"os"

	"github.com/colorbench/chartcal/pkg/chart"
	"github.com/colorbench/chartcal/pkg/correct"
	"github.com/colorbench/chartcal/pkg/imgcorrect"
)

var(
	fModels    string
	fInput     string
	fOutput    string
	fMethod    string
	fVerbosity int
)

func init() {
	flag.StringVar(&fModels, "models", "models.yaml", "fitted model set from chartcal-fit")
	flag.StringVar(&fInput, "in", "", "image to correct (TIFF/PNG)")
	flag.StringVar(&fOutput, "out", "corrected.png", "where to write the corrected image")
	flag.StringVar(&fMethod, "method", "ensemble", "correction path: ensemble or linear")
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.Parse()

	log.Printf("chartcal-apply starting\n")
}

func main() {
	models, err := correct.LoadModels(fModels)
	if err != nil {
		log.Fatal(err)
	}

	img, _, err := chart.LoadChartImage(fInput)
	if err != nil {
		log.Fatal(err)
	}

	corrector := imgcorrect.Corrector{
		Models:    models,
		Method:    fMethod,
		Verbosity: fVerbosity,
	}
	out, err := corrector.Correct(img)
	if err != nil {
		log.Fatal(err)
	}

	f, err := os.Create(fOutput)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, out); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote corrected image to %s\n", fOutput)
}
