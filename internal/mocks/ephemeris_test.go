package mocks

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/mock/gomock"

	"mlens-core/kinematics"
	"mlens-core/lightcurve"
)

var bulge = kinematics.Target{RA: 269.77, Dec: -28.5}

func parallaxModel(t *testing.T) lightcurve.Model {
	t.Helper()
	m, err := lightcurve.FromFlat(lightcurve.KindPSPLParallax, []float64{0.2, math.Log(40), 7500, 0.3, -0.1})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

var times = []float64{7450, 7480, 7500, 7520, 7560}

func TestMockSun_FeedsParallax(t *testing.T) {
	ctrl := gomock.NewController(t)
	sun := NewMockEphemeris(ctrl)
	sun.EXPECT().Position(gomock.Any()).DoAndReturn(kinematics.SunModel{}.Position).MinTimes(3)

	tg := bulge
	want, err := lightcurve.Generate(parallaxModel(t), times, lightcurve.Options{Target: &tg})
	if err != nil {
		t.Fatal(err)
	}
	got, err := lightcurve.Generate(parallaxModel(t), times, lightcurve.Options{Target: &tg, Sun: sun})
	if err != nil {
		t.Fatal(err)
	}
	for i := range times {
		if math.Float64bits(got.Mag[i]) != math.Float64bits(want.Mag[i]) {
			t.Fatalf("t=%g: mag %g want %g", times[i], got.Mag[i], want.Mag[i])
		}
	}
}

func TestMockSun_OutOfRangeFailsEpoch(t *testing.T) {
	ctrl := gomock.NewController(t)
	sun := NewMockEphemeris(ctrl)
	sun.EXPECT().Position(gomock.Any()).DoAndReturn(func(jd float64) (kinematics.Vec3, error) {
		if jd > 2457540 {
			return kinematics.Vec3{}, kinematics.ErrEphemeris
		}
		return kinematics.SunModel{}.Position(jd)
	}).AnyTimes()

	tg := bulge
	res, err := lightcurve.Generate(parallaxModel(t), times, lightcurve.Options{Target: &tg, Sun: sun, Time: kinematics.JD})
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed() != 1 || !errors.Is(res.Status[4].Err, kinematics.ErrEphemeris) || !math.IsNaN(res.Mag[4]) {
		t.Fatalf("failed=%d last=%v", res.Failed(), res.Status[4].Err)
	}
	if math.IsNaN(res.Mag[3]) {
		t.Fatal("in-range epoch failed")
	}
}

func TestMockSatellite_AtGeocentre(t *testing.T) {
	ctrl := gomock.NewController(t)
	sat := NewMockEphemeris(ctrl)
	sat.EXPECT().Position(gomock.Any()).Return(kinematics.Vec3{}, nil).Times(len(times))

	tg := bulge
	ground, err := lightcurve.Generate(parallaxModel(t), times, lightcurve.Options{Target: &tg})
	if err != nil {
		t.Fatal(err)
	}
	space, err := lightcurve.Generate(parallaxModel(t), times, lightcurve.Options{Target: &tg, Satellite: sat})
	if err != nil {
		t.Fatal(err)
	}
	for i := range times {
		if math.Float64bits(space.Mag[i]) != math.Float64bits(ground.Mag[i]) {
			t.Fatalf("t=%g: %g vs %g", times[i], space.Mag[i], ground.Mag[i])
		}
	}
}
