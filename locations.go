package main

import (
	"math/rand"
	"strings"
)

// Location is a bilingual "SWEDISH/ENGLISH" scenario string. Both halves
// ride over the wire as-is; the client picks a side.
type Location string

func (l Location) Swedish() string {
	name, _, _ := strings.Cut(string(l), "/")
	return name
}

func (l Location) English() string {
	_, name, found := strings.Cut(string(l), "/")
	if !found {
		return string(l)
	}
	return name
}

// spyRole is the sentinel delivered to the spy instead of the round's
// location. It must never equal any entry in the location table.
const spyRole Location = "DU ÄR SPIONEN/YOU ARE THE SPY"

var locations = []Location{
	"PÅ STRANDEN/AT THE BEACH",
	"PÅ FLYGPLATSEN/AT THE AIRPORT",
	"PÅ TEATERN/AT THE THEATER",
	"PÅ RESTAURANGEN/AT THE RESTAURANT",
	"PÅ SJUKHUSET/AT THE HOSPITAL",
	"I BIBLIOTEKET/IN THE LIBRARY",
	"I SKOLAN/IN THE SCHOOL",
	"VID SKRIVBORDET/AT THE DESK",
	"I PARKEN/IN THE PARK",
	"PÅ BION/AT THE CINEMA",
	"PÅ MUSÉET/AT THE MUSEUM",
	"PÅ LEKPLATSEN/AT THE PLAYGROUND",
	"I TRÄDGÅRDEN/IN THE GARDEN",
	"I KYRKAN/IN THE CHURCH",
	"I KÖKET/IN THE KITCHEN",
	"I LEKSAKSAFFÄREN/IN THE TOY STORE",
	"I SKOGEN/IN THE FOREST",
	"PÅ APOTEKET/AT THE PHARMACY",
	"I FABRIKEN/IN THE FACTORY",
	"PÅ SLOTTET/AT THE CASTLE",
	"PÅ DJURPARKEN/AT THE ZOO",
	"PÅ FRISÖRSALONGEN/AT THE BARBER SHOP",
	"PÅ CAFÉET/AT THE CAFÉ",
	"PÅ MACKEN/AT THE GAS STATION",
	"HEMMA/AT HOME",
	"PÅ BUSSEN/ON THE BUS",
	"I TUNNELBANAN/ON THE SUBWAY",
	"PÅ EN Ö/ON AN ISLAND",
	"PÅ BILTVÄTTEN/IN THE CAR WASH",
	"VID HAMNEN/AT THE HARBOR",
	"PÅ SKIDBACKEN/ON THE SKI SLOPE",
	"PÅ GOLFBANAN/ON THE GOLF COURSE",
	"VID SJÖN/BY THE LAKE",
	"I BOKAFFÄREN/IN THE BOOK STORE",
	"I VÄXTHUSET/IN THE GREENHOUSE",
	"PÅ TÅGSTATIONEN/AT THE TRAIN STATION",
	"I GARAGET/IN THE GARAGE",
	"UPPE I BIG BEN/UP IN BIG BEN",
	"I POOLEN/IN THE POOL",
	"PÅ ISBANAN/ON THE ICE RINK",
	"I KONDITORIET/AT THE PASTRY SHOP",
	"PÅ POSTEN/AT THE POST OFFICE",
	"PÅ SECONDHAND BUTIK/AT THE THRIFT SHOP",
	"I ORTEN/IN THE HOOD",
	"PÅ HIKINGLEDEN/ON A HIKING TRAIL",
	"I FÄNGELSET/IN PRISON",
	"I FÖRRÅDET/IN THE STORAGE ROOM",
	"PÅ MOUNT EVEREST/ON MOUNT EVEREST",
	"PÅ SKOGSSTIGEN/ON THE FOREST TRAIL",
	"PÅ KARUSELLEN/ON THE CAROUSEL",
	"PÅ KRETA/IN CRETE",
	"I GAMLA STAN/AT GAMLA STAN",
	"PÅ HÄSTGÅRDEN/ON THE HORSE FARM",
	"PÅ REHAB/AT REHAB",
	"PÅ VINGÅRDEN/AT THE VINEYARD",
	"VID TULLEN/AT THE BORDER CONTROL",
	"I FJÄLLSTUGAN/AT THE MOUNTAIN CABIN",
	"I HIMLEN/IN HEAVEN",
	"PÅ KRYSSNINGSFARTYG/IN A CRUISE SHIP",
	"I SOPORNA/IN THE GARBAGE",
	"I EN SARDINBURK/IN A SARDINE CAN",
	"I JULTOMTENS SÄCK/IN SANTA'S BAG",
	"I GRAVEN/IN THE GRAVE",
	"I EN KAFFEKOPP/IN A COFFEE CUP",
	"I SNUSDOSAN/IN THE SNUS BOX",
	"I TOALETEN/IN THE TOILET",
	"I HELVETET/IN HELL",
	"PÅ SEMESTER/ON VACATION",
	"PÅ EN SKATEBOARDRAMP/ON A SKATEBOARD RAMP",
	"PÅ CYKELN/ON THE BICYCLE",
	"I LIVSMEDELS BUTIKEN/AT THE FOOD STORE",
	"I EN KRUKA/IN A FLOWER POT",
	"I DISKHON/IN THE SINK",
	"I MIKROVÅGSUGNEN/IN THE MICROWAVE",
	"I KYLSKÅPET/IN THE FRIDGE",
	"I EN POPCORNMASKIN/IN A POPCORN MACHINE",
	"I TVÄTTMASKINEN/IN THE WASHING MACHINE",
	"I EN LUFTBALLONG/IN A HOT AIR BALLOON",
	"I EN GODISAFFÄR/IN THE CANDY STORE",
	"PÅ EN KAMEL/ON A CAMEL",
	"I EN GUMMIBÅT/IN A RUBBER BOAT",
	"I EN ASTRONAUTDRÄKT/IN AN ASTRONAUT SUIT",
	"I EN SNÖGLOB/IN A SNOW GLOBE",
	"PÅ EN RAKET/ON A ROCKET",
	"PÅ EN RYMDSTATION/ON A SPACE STATION",
	"PÅ EN ENHÖRNING/ON A UNICORN",
	"I EN PÖL/IN A PUDDLE",
	"I EN REGNBÅGE/IN A RAINBOW",
	"PÅ EN RULLTRAPPA/ON AN ESCALATOR",
	"I EN CHOKLADFABRIK/IN A CHOCOLATE FACTORY",
	"PÅ EN ELSCOOTER/ON A SCOOTER",
	"PÅ EN TRAMPOLIN/ON A TRAMPOLINE",
	"I EN IGLOO/IN AN IGLOO",
	"I EN HAMBURGARE/IN A HAMBURGER",
	"I EN SOFFA/IN A COUCH",
	"PÅ EN RYMDRESA/ON A SPACE JOURNEY",
	"PÅ EN SURFINGBRÄDA/ON A SURFBOARD",
	"PÅ JULAFTON/ON CHRISTMAS EVE",
}

// locationDeck deals locations without replacement, for rooms configured
// to avoid repeats within one game.
type locationDeck struct {
	order []int
	next  int
}

func newLocationDeck(rng *rand.Rand) *locationDeck {
	return &locationDeck{order: rng.Perm(len(locations))}
}

func (d *locationDeck) draw() (Location, error) {
	if d.next >= len(d.order) {
		return "", errNoLocationsLeft
	}

	loc := locations[d.order[d.next]]
	d.next++

	return loc, nil
}

func (d *locationDeck) remaining() int {
	return len(d.order) - d.next
}
