package mocks

//go:generate mockgen -destination=ephemeris.go -package=mocks mlens-core/kinematics Ephemeris
