package geo

import (
	"math"

	"navi-route-go/pkg/models"
)

const earthRadiusKm = 6371.0

// Calculator для географических вычислений
type Calculator struct{}

// NewCalculator создает новый калькулятор
func NewCalculator() *Calculator {
	return &Calculator{}
}

// DistanceMeters вычисляет расстояние между двумя точками в метрах
// Использует формулу гаверсинуса
func (c *Calculator) DistanceMeters(point1, point2 models.Coordinates) float64 {
	lat1Rad := point1.Lat * math.Pi / 180
	lng1Rad := point1.Lng * math.Pi / 180
	lat2Rad := point2.Lat * math.Pi / 180
	lng2Rad := point2.Lng * math.Pi / 180

	deltaLat := lat2Rad - lat1Rad
	deltaLng := lng2Rad - lng1Rad

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	chord := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * chord * 1000
}

// PathLengthMeters суммирует длины отрезков ломаной
func (c *Calculator) PathLengthMeters(path []models.Coordinates) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += c.DistanceMeters(path[i-1], path[i])
	}
	return total
}

// InterpolateCoordinates создает numPoints точек между start и end включительно.
// Линейная интерполяция в пространстве (lat, lng); крайние точки совпадают с start и end.
func (c *Calculator) InterpolateCoordinates(start, end models.Coordinates, numPoints int) []models.Coordinates {
	if numPoints <= 0 {
		return []models.Coordinates{}
	}

	if numPoints == 1 {
		return []models.Coordinates{start}
	}

	coords := make([]models.Coordinates, numPoints)

	last := numPoints - 1
	for i := 0; i < numPoints; i++ {
		ratio := float64(i) / float64(last)

		coords[i] = models.Coordinates{
			Lat: start.Lat + (end.Lat-start.Lat)*ratio,
			Lng: start.Lng + (end.Lng-start.Lng)*ratio,
		}
	}

	// start + (end-start)*1 может отличаться от end в последнем бите
	coords[0] = start
	coords[last] = end

	return coords
}

// ValidCoordinates проверяет, что координата конечна и лежит в допустимых пределах
func ValidCoordinates(point models.Coordinates) bool {
	if math.IsNaN(point.Lat) || math.IsNaN(point.Lng) || math.IsInf(point.Lat, 0) || math.IsInf(point.Lng, 0) {
		return false
	}
	return point.Lat >= -90 && point.Lat <= 90 && point.Lng >= -180 && point.Lng <= 180
}
