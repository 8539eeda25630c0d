package types

import "fmt"

// Major trade hub regions.
const (
	RegionTheForge   RegionID = 10000002
	RegionDomain     RegionID = 10000043
	RegionSinqLaison RegionID = 10000032
	RegionHeimatar   RegionID = 10000030
	RegionMetropolis RegionID = 10000042
)

//nolint:gochecknoglobals // static catalogue
var regionNames = map[RegionID]string{
	RegionTheForge:   "The Forge (Jita)",
	RegionDomain:     "Domain (Amarr)",
	RegionSinqLaison: "Sinq Laison (Dodixie)",
	RegionHeimatar:   "Heimatar (Rens)",
	RegionMetropolis: "Metropolis (Hek)",
}

//nolint:gochecknoglobals // static catalogue
var hubStations = map[RegionID]LocationID{
	RegionTheForge:   60003760, // Jita IV - Moon 4 - Caldari Navy Assembly Plant
	RegionDomain:     60008494, // Amarr VIII (Oris) - Emperor Family Academy
	RegionSinqLaison: 60011866, // Dodixie IX - Moon 20 - Federation Navy Assembly Plant
	RegionHeimatar:   60004588, // Rens VI - Moon 8 - Brutor Tribe Treasury
	RegionMetropolis: 60005686, // Hek VIII - Moon 12 - Boundless Creation Factory
}

// RegionName returns the display name of a region.
func RegionName(id RegionID) string {
	if name, ok := regionNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Region %d", id)
}

// TradeHubs returns the five major trade hub regions in a stable order.
func TradeHubs() []RegionID {
	return []RegionID{RegionTheForge, RegionDomain, RegionSinqLaison, RegionHeimatar, RegionMetropolis}
}

// HubStation returns the main trade station of a hub region.
func HubStation(id RegionID) (LocationID, bool) {
	loc, ok := hubStations[id]
	return loc, ok
}
