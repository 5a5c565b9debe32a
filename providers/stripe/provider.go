package stripe

const ProviderID = "stripe"
