/*
Copyright © 2024 the pgwcloud authors.
This file is part of pgwcloud.

pgwcloud is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

pgwcloud is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with pgwcloud.  If not, see <http://www.gnu.org/licenses/>.
*/

package pgwcloud

// Category is a hydrometeor category.
type Category int

// Hydrometeor categories.
const (
	Cloud Category = iota
	Rain
	Ice
	Snow
	Graupel
)

// Categories lists all hydrometeor categories in output order.
var Categories = []Category{Cloud, Rain, Ice, Snow, Graupel}

func (cat Category) String() string {
	switch cat {
	case Cloud:
		return "cloud"
	case Rain:
		return "rain"
	case Ice:
		return "ice"
	case Snow:
		return "snow"
	case Graupel:
		return "graupel"
	default:
		return "unknown"
	}
}

// Density returns the bulk material density [kg/m3] of the category.
func (cat Category) Density(c Constants) float64 {
	switch cat {
	case Cloud, Rain:
		return c.RhoLiquid
	case Ice:
		return c.RhoIce
	case Snow:
		return c.RhoSnow
	case Graupel:
		return c.RhoGraupel
	default:
		panic("pgwcloud: invalid hydrometeor category")
	}
}

// OpticalDepth estimates the shortwave optical depth of one hydrometeor
// category from its water path wp [kg/m2], effective radius reff [m] and
// material density [kg/m3]. Zero water path yields zero optical depth
// whether or not the radius is defined.
func OpticalDepth(wp float64, reff Maybe, density float64) Maybe {
	if wp == 0 {
		return Some(0)
	}
	if !reff.Valid {
		return None()
	}
	return Some(3 * wp / (2 * reff.Value * density))
}

// CategoryDepths holds the optical depth of each hydrometeor category.
type CategoryDepths struct {
	Cloud, Rain, Ice, Snow, Graupel Maybe
}

// Get returns the optical depth of category cat.
func (d CategoryDepths) Get(cat Category) Maybe {
	switch cat {
	case Cloud:
		return d.Cloud
	case Rain:
		return d.Rain
	case Ice:
		return d.Ice
	case Snow:
		return d.Snow
	case Graupel:
		return d.Graupel
	default:
		return None()
	}
}

// Set sets the optical depth of category cat.
func (d *CategoryDepths) Set(cat Category, v Maybe) {
	switch cat {
	case Cloud:
		d.Cloud = v
	case Rain:
		d.Rain = v
	case Ice:
		d.Ice = v
	case Snow:
		d.Snow = v
	case Graupel:
		d.Graupel = v
	}
}

// Liquid returns the optical depth of cloud water and rain.
func (d CategoryDepths) Liquid() Maybe { return d.Cloud.Add(d.Rain) }

// Frozen returns the optical depth of ice, snow and graupel.
func (d CategoryDepths) Frozen() Maybe { return d.Ice.Add(d.Snow).Add(d.Graupel) }

// Total returns the optical depth of all categories.
func (d CategoryDepths) Total() Maybe { return d.Liquid().Add(d.Frozen()) }
