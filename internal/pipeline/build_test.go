package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geomantic/tilepress/internal/config"
	"github.com/geomantic/tilepress/internal/faults"
	"github.com/geomantic/tilepress/internal/pathcheck"
	"github.com/geomantic/tilepress/internal/planner"
)

func testRequest() *planner.Request {
	return &planner.Request{
		Input:     pathcheck.Validated("/data/counties.parquet"),
		Output:    pathcheck.Validated("/data/counties.pmtiles"),
		MinZoom:   config.ZoomUnset,
		MaxZoom:   config.ZoomUnset,
		Precision: config.ZoomUnset,
		Layer:     "counties",
	}
}

func argsFor(t *testing.T, req *planner.Request, kind planner.StageKind) []string {
	t.Helper()
	plan := planner.Build(req)
	for _, spec := range plan.Stages {
		if spec.Kind == kind {
			args, err := BuildArgs(spec, req)
			require.NoError(t, err)
			return args
		}
	}
	t.Fatalf("plan has no %s stage", kind)
	return nil
}

func TestBuildArgs_ConvertReadsInputDirectly(t *testing.T) {
	req := testRequest()
	got := argsFor(t, req, planner.StageConvert)
	want := []string{"gpio", "geojson", "/data/counties.parquet", "-o", "-"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("convert argv mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildArgs_ConvertReadsStdinAfterFilter(t *testing.T) {
	req := testRequest()
	req.BBox = "0,0,1,1"
	got := argsFor(t, req, planner.StageConvert)
	want := []string{"gpio", "geojson", "-", "-o", "-"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("convert argv mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildArgs_Reproject(t *testing.T) {
	req := testRequest()
	req.SrcCRS = "EPSG:3857"
	got := argsFor(t, req, planner.StageReproject)
	want := []string{
		"gpio", "reproject", "/data/counties.parquet",
		"--src-crs", "EPSG:3857", "--dst-crs", "EPSG:4326", "-o", "-",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reproject argv mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildArgs_ExtractBBoxLiteralUnaltered(t *testing.T) {
	req := testRequest()
	req.BBox = "-122.5,37.5,-122.0,38.0"
	got := argsFor(t, req, planner.StageExtract)
	want := []string{
		"gpio", "extract", "/data/counties.parquet",
		"--bbox", "-122.5,37.5,-122.0,38.0", "-o", "-",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("extract argv mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildArgs_ExtractAllFilters(t *testing.T) {
	req := testRequest()
	req.SrcCRS = "EPSG:3857" // extract is now second, reads stdin
	req.BBox = "0,0,1,1"
	req.Where = "population > 1000"
	req.Columns = "name,population,geometry"
	got := argsFor(t, req, planner.StageExtract)
	want := []string{
		"gpio", "extract", "-",
		"--bbox", "0,0,1,1",
		"--where", "population > 1000",
		"--columns", "name,population,geometry",
		"-o", "-",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("extract argv mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildArgs_TileDefaults(t *testing.T) {
	req := testRequest()
	got := argsFor(t, req, planner.StageTile)
	want := []string{
		"tippecanoe", "-o", "/data/counties.pmtiles", "--force",
		"-l", "counties",
		"--drop-densest-as-needed",
		"--simplification=10",
		"--progress-interval=10",
		"-zg",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tile argv mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildArgs_TileZoomPolicy(t *testing.T) {
	cases := []struct {
		name     string
		min, max int
		want     []string // zoom-related args only
	}{
		{"both unset", config.ZoomUnset, config.ZoomUnset, []string{"-zg"}},
		{"min only", 4, config.ZoomUnset, []string{"-Z", "4", "-zg"}},
		{"max only", config.ZoomUnset, 14, []string{"-z", "14"}},
		{"both set", 4, 14, []string{"-Z", "4", "-z", "14"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := testRequest()
			req.MinZoom, req.MaxZoom = tc.min, tc.max
			got := argsFor(t, req, planner.StageTile)
			// The zoom args follow the fixed quality block.
			tail := got[9:]
			if diff := cmp.Diff(tc.want, tail); diff != "" {
				t.Errorf("zoom args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildArgs_TileOptions(t *testing.T) {
	req := testRequest()
	req.Precision = 12
	req.Attribution = "© Geomantic"
	got := argsFor(t, req, planner.StageTile)
	assert.Contains(t, got, "--full-detail=12")
	assert.Contains(t, got, "--attribution=© Geomantic")
}

func TestBuildArgs_TileOnlyOptionsDoNotLeak(t *testing.T) {
	req := testRequest()
	req.SrcCRS = "EPSG:3857"
	req.BBox = "0,0,1,1"
	req.Layer = "parcels_2020"
	req.Precision = 12
	req.Attribution = "Geomantic Attribution"

	for _, kind := range []planner.StageKind{planner.StageReproject, planner.StageExtract, planner.StageConvert} {
		args := argsFor(t, req, kind)
		for _, a := range args {
			assert.NotContains(t, a, "parcels_2020", "%s argv leaked the layer name: %v", kind, args)
			assert.NotContains(t, a, "Attribution", "%s argv leaked attribution: %v", kind, args)
			assert.NotContains(t, a, "detail", "%s argv leaked precision: %v", kind, args)
		}
	}
}

func TestBuildArgs_InvertedZoomBounds(t *testing.T) {
	req := testRequest()
	req.MinZoom, req.MaxZoom = 12, 8
	plan := planner.Build(req)
	_, err := BuildStages(plan, req)
	var ce *faults.ConflictError
	require.ErrorAs(t, err, &ce)
}

func TestBuildStages_ProfileEnvOnReadingStageOnly(t *testing.T) {
	req := testRequest()
	req.Input = pathcheck.Validated("s3://bucket/counties.parquet")
	req.Profile = "prod"
	req.BBox = "0,0,1,1"

	stages, err := BuildStages(planner.Build(req), req)
	require.NoError(t, err)
	require.Len(t, stages, 3)

	assert.Equal(t, []string{"AWS_PROFILE=prod"}, stages[0].Env)
	assert.Empty(t, stages[1].Env)
	assert.Empty(t, stages[2].Env)
}

func TestBuildStages_NoShellJoins(t *testing.T) {
	req := testRequest()
	req.Where = "a = 'b; c'"
	stages, err := BuildStages(planner.Build(req), req)
	require.NoError(t, err)
	for _, s := range stages {
		assert.Greater(t, len(s.Args), 1, "argv must stay discrete, never a joined string")
	}
}
