package mollie

const ProviderID = "mollie"
