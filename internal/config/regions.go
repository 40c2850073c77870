package config

// DefaultRegions returns the eight-state region table in descending
// apportionment order, each with its agency portal and provider tiers.
func DefaultRegions() []RegionConfig {
	return []RegionConfig{
		{
			Code: "NY", Name: "New York", FIPS: "36", Apportionment: 0.3262,
			PortalURL: "https://www.dot.ny.gov/doing-business/opportunities/const-highway",
			Towns:     []string{"Albany", "Syracuse", "Rochester", "Buffalo", "Utica", "Binghamton"},
			Providers: []ProviderConfig{
				{Name: "nysdot-lettings-table", Kind: "html_table", URL: "https://www.dot.ny.gov/doing-business/opportunities/const-highway"},
				{Name: "nysdot-lettings-links", Kind: "links", URL: "https://www.dot.ny.gov/doing-business/opportunities/const-highway"},
			},
		},
		{
			Code: "PA", Name: "Pennsylvania", FIPS: "42", Apportionment: 0.3138,
			PortalURL: "https://www.penndot.pa.gov/business/Letting/Pages/default.aspx",
			Towns:     []string{"Harrisburg", "Pittsburgh", "Philadelphia", "Scranton", "Allentown"},
			Providers: []ProviderConfig{
				{Name: "penndot-lettings-links", Kind: "links", URL: "https://www.penndot.pa.gov/business/Letting/Pages/default.aspx"},
			},
		},
		{
			Code: "MA", Name: "Massachusetts", FIPS: "25", Apportionment: 0.1290,
			PortalURL: "https://www.mass.gov/info-details/advertised-projects-bid-opening-schedule",
			Towns:     []string{"Boston", "Worcester", "Springfield", "Cambridge", "Lowell"},
			Providers: []ProviderConfig{
				{Name: "massdot-bid-schedule", Kind: "html_table", URL: "https://www.mass.gov/info-details/advertised-projects-bid-opening-schedule"},
				{Name: "massdot-bid-schedule-rendered", Kind: "rendered", URL: "https://www.mass.gov/info-details/advertised-projects-bid-opening-schedule", WaitFor: "table"},
				{Name: "massdot-bid-links", Kind: "links", URL: "https://www.mass.gov/info-details/advertised-projects-bid-opening-schedule"},
			},
		},
		{
			Code: "CT", Name: "Connecticut", FIPS: "09", Apportionment: 0.0880,
			PortalURL: "https://portal.ct.gov/dot/projects/projects/projects-and-studies",
			Towns:     []string{"Hartford", "New Haven", "Bridgeport", "Stamford", "Waterbury", "Norwalk"},
			Providers: []ProviderConfig{
				{Name: "ctdot-projects-links", Kind: "links", URL: "https://portal.ct.gov/dot/projects/projects/projects-and-studies"},
				{Name: "ctdot-projects-text", Kind: "text", URL: "https://portal.ct.gov/dot/projects/projects/projects-and-studies"},
			},
		},
		{
			Code: "ME", Name: "Maine", FIPS: "23", Apportionment: 0.0450,
			PortalURL: "https://www.maine.gov/dot/projects/",
			Towns:     []string{"Portland", "Bangor", "Lewiston", "Augusta", "Presque Isle", "Biddeford"},
			Providers: []ProviderConfig{
				{Name: "mainedot-projects-table", Kind: "html_table", URL: "https://www.maine.gov/dot/projects/"},
				{Name: "mainedot-projects-links", Kind: "links", URL: "https://www.maine.gov/dot/projects/"},
			},
		},
		{
			Code: "NH", Name: "New Hampshire", FIPS: "33", Apportionment: 0.0420,
			PortalURL: "https://www.dot.nh.gov/doing-business-nhdot/contractors/invitation-bid",
			Towns:     []string{"Manchester", "Nashua", "Concord", "Portsmouth", "Keene", "Laconia"},
			Providers: []ProviderConfig{
				{Name: "nhdot-invitation-table", Kind: "html_table", URL: "https://www.dot.nh.gov/doing-business-nhdot/contractors/invitation-bid"},
				{Name: "nhdot-invitation-links", Kind: "links", URL: "https://www.dot.nh.gov/doing-business-nhdot/contractors/invitation-bid"},
			},
		},
		{
			Code: "RI", Name: "Rhode Island", FIPS: "44", Apportionment: 0.0300,
			PortalURL: "https://www.dot.ri.gov/projects/",
			Towns:     []string{"Providence", "Warwick", "Cranston", "Newport", "Pawtucket"},
			Providers: []ProviderConfig{
				{Name: "ridot-projects-links", Kind: "links", URL: "https://www.dot.ri.gov/projects/"},
				{Name: "ridot-projects-text", Kind: "text", URL: "https://www.dot.ri.gov/projects/"},
			},
		},
		{
			Code: "VT", Name: "Vermont", FIPS: "50", Apportionment: 0.0260,
			PortalURL: "https://vtrans.vermont.gov/about/construction-report",
			Towns:     []string{"Burlington", "Montpelier", "Rutland", "Bennington", "Brattleboro", "Barre"},
			Providers: []ProviderConfig{
				{Name: "vtrans-bids-table", Kind: "html_table", URL: "https://vtrans.vermont.gov/contract-admin/bids-requests/construction-contracting"},
				{Name: "vtrans-construction-report", Kind: "text", URL: "https://vtrans.vermont.gov/about/construction-report"},
				{Name: "vtrans-bids-links", Kind: "links", URL: "https://vtrans.vermont.gov/contract-admin/bids-requests/construction-contracting"},
			},
		},
	}
}
